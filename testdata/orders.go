//typeguard:endToEnd total | [1, 2, 3] | 6 |
//typeguard:endToEnd total | [1, "2"] | 1 | unexpected_argument
//typeguard:endToEnd label | :eur | "EUR" |
//typeguard:endToEnd label | "eur" | "unknown" | unexpected_argument
//typeguard:endToEnd discount | 100 | 90 |
//typeguard:endToEnd discount | 100 ; 50 | 50 |
package orders

import (
	"strings"

	"github.com/cottand/typeguard/object"
)

// Total sums the integer prices.
//
// @param prices [Array<Integer>]
// @return [Integer]
func Total(prices []any) any {
	sum := 0
	for _, p := range prices {
		if n, ok := p.(int); ok {
			sum += n
		}
	}
	return sum
}

// Label names a currency.
//
// @param currency [Symbol]
// @return [String]
func Label(currency any) string {
	if s, ok := currency.(object.Symbol); ok {
		return strings.ToUpper(string(s))
	}
	return "unknown"
}

// Discount takes percent off a price.
//
// @param price [Integer]
// @param percent [Integer] (10)
// @return [Integer]
func Discount(price, percent int) int {
	return price - price*percent/100
}
