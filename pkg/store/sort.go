package store

import (
	"sort"

	"github.com/variety-jones/cptracker/pkg/models"
)

// SortUsers orders users in place according to order, breaking ties by
// username ascending. Stores without native ordering use it.
func SortUsers(users []models.UserRecord, order Sort) {
	sort.SliceStable(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if order.Field == FieldTotal && a.Total != b.Total {
			if order.Direction == Descending {
				return a.Total > b.Total
			}
			return a.Total < b.Total
		}
		if order.Field == FieldUsername && order.Direction == Descending {
			return a.Username > b.Username
		}
		return a.Username < b.Username
	})
}
