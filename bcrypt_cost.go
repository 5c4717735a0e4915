//go:build !race

package identity

func defaultHashCost() int {
	return 14
}
