package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/variety-jones/cptracker/pkg/config"
)

func setenv(key, value string) {
	prev, had := os.LookupEnv(key)
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(func() {
		if had {
			_ = os.Setenv(key, prev)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func tempDir() string {
	dir, err := os.MkdirTemp("", "cptracker-config")
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(os.RemoveAll, dir)
	return dir
}

func writeFile(contents string) string {
	path := filepath.Join(tempDir(), "config.yaml")
	Expect(os.WriteFile(path, []byte(contents), 0o600)).To(Succeed())
	return path
}

var _ = Describe("Load", func() {
	It("returns the defaults when nothing is set", func() {
		cfg, err := config.Load("")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(config.New()))
		Expect(cfg.IsProduction()).To(BeFalse())
		Expect(cfg.Tracker.UpdateDelay).To(Equal(time.Second))
	})

	It("layers the YAML file over the defaults", func() {
		path := writeFile(`
environment: prod
platform: codeforces
store: memory
mongo:
  database: ranking
scheduler:
  cooldown: 30m
redis:
  addr: localhost:6379
  ttl: 90s
`)
		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.IsProduction()).To(BeTrue())
		Expect(cfg.Platform).To(Equal(config.PlatformCodeforces))
		Expect(cfg.Store).To(Equal(config.StoreMemory))
		Expect(cfg.Mongo.Database).To(Equal("ranking"))
		Expect(cfg.Mongo.URI).To(Equal("mongodb://localhost:27017"))
		Expect(cfg.Scheduler.Cooldown).To(Equal(30 * time.Minute))
		Expect(cfg.Scheduler.Enabled).To(BeTrue())
		Expect(cfg.Redis.Addr).To(Equal("localhost:6379"))
		Expect(cfg.Redis.TTL).To(Equal(90 * time.Second))
	})

	It("lets environment variables override the file", func() {
		path := writeFile("addr: \":9000\"\n")
		setenv("CPTRACKER_ADDR", ":9100")
		setenv("CPTRACKER_MONGO__URI", "mongodb://db:27017")
		setenv("CPTRACKER_SCHEDULER__ENABLED", "false")
		setenv("CPTRACKER_TRACKER__UPDATE_DELAY", "250ms")
		setenv("CPTRACKER_CONTESTS__TTL", "15m")

		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Addr).To(Equal(":9100"))
		Expect(cfg.Mongo.URI).To(Equal("mongodb://db:27017"))
		Expect(cfg.Scheduler.Enabled).To(BeFalse())
		Expect(cfg.Tracker.UpdateDelay).To(Equal(250 * time.Millisecond))
		Expect(cfg.Contests.TTL).To(Equal(15 * time.Minute))
		Expect(cfg.Contests.Enabled).To(BeTrue())
	})

	It("reads the file named by CPTRACKER_CONFIG", func() {
		setenv("CPTRACKER_CONFIG", writeFile("platform: codeforces\n"))

		cfg, err := config.Load("")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Platform).To(Equal(config.PlatformCodeforces))
	})

	It("rejects invalid values", func() {
		setenv("CPTRACKER_PLATFORM", "topcoder")

		_, err := config.Load("")
		Expect(errors.Is(err, config.ErrInvalidConfig)).To(BeTrue())
	})

	It("fails on a missing file", func() {
		_, err := config.Load(filepath.Join(tempDir(), "absent.yaml"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Validate", func() {
	It("requires a positive cooldown when the scheduler runs", func() {
		cfg := config.New()
		cfg.Scheduler.Cooldown = 0
		Expect(errors.Is(cfg.Validate(), config.ErrInvalidConfig)).To(BeTrue())

		cfg.Scheduler.Enabled = false
		Expect(cfg.Validate()).To(Succeed())
	})

	It("requires mongo settings only for the mongo store", func() {
		cfg := config.New()
		cfg.Mongo.URI = ""
		Expect(errors.Is(cfg.Validate(), config.ErrInvalidConfig)).To(BeTrue())

		cfg.Store = config.StoreMemory
		Expect(cfg.Validate()).To(Succeed())
	})

	It("rejects a negative contest ttl", func() {
		cfg := config.New()
		cfg.Contests.TTL = -time.Minute
		Expect(errors.Is(cfg.Validate(), config.ErrInvalidConfig)).To(BeTrue())
	})
})
