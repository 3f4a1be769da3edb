//typeguard:endToEnd area | 2 | 4 |
//typeguard:endToEnd area | 2 ; 3 | 6 |
//typeguard:endToEnd area | 2 ; "3" | 4 | unexpected_argument
//typeguard:endToEnd describe | {sides: 4} | "4 sides" |
//typeguard:endToEnd describe | {sides: four} | "0 sides" | unexpected_argument
//typeguard:endToEnd broken_area | 2 | "oops" | unexpected_return
package shapes

import "fmt"

// Area of a rectangle, or of a square when h is nil.
//
// @param w [Integer]
// @param h [Integer, nil] (nil)
// @return [Integer]
func Area(w int, h any) int {
	if n, ok := h.(int); ok {
		return w * n
	}
	return w * w
}

// Describe prints the number of sides of a shape.
//
// @param shape [Hash{String => Integer}]
// @return [String]
func Describe(shape map[string]any) string {
	sides, _ := shape["sides"].(int)
	return fmt.Sprintf("%d sides", sides)
}

// BrokenArea does not return what it promises.
//
// @param w [Integer]
// @return [Integer]
func BrokenArea(w int) any {
	return "oops"
}
