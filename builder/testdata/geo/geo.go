package geo

// Shape is anything with an area
type Shape interface {
	Area() float64
}

// Point is a point of the plane
type Point struct {
	// @return [Integer]
	X int
	Y int // @return [Integer]

	label string
}

// Labeled is a point with a label
type Labeled struct {
	Point
	// @return [String, nil]
	Label *string
}

// Version of the geometry.
//
// @return [String]
const Version = "1"

// Dist returns the distance to other.
//
// @param other [Point] the other point
// @return [Float]
func (p *Point) Dist(other Point) float64 { return 0 }

// Scale multiplies the coordinates.
//
// @param [Integer, Float] by the factor
// @param factors [Array<Numeric>]
// @return [self]
func (p *Point) Scale(by float64, factors ...float64) *Point { return p }

// Each yields the coordinates.
//
// @param fn [Proc]
// @return [void]
func (p Point) Each(fn Proc) {}

// Render draws the point.
//
// @param opts [Hash] rendering options
// @option opts [Symbol] :style (:plain) the style
// @option opts [Integer] :width the width
// @return [String]
func (p Point) Render(opts map[string]any) string { return "" }

// draw is Render for internal callers.
//
// @param opts (see #render)
// @return (see #Render)
// @visibility public
func (p Point) draw(opts map[string]any) string { return "" }

// Unit builds the unit point.
//
// @scope class
// @return [Point]
func (Point) Unit() Point { return Point{X: 1} }

// NewPoint builds a point.
//
// @param x [Integer]
// @param y [Integer] (0)
// @param z [Integer] not a parameter
// @return [Point]
func NewPoint(x, y int) *Point { return &Point{X: x, Y: y} }

// origin is not documented with tags
func origin() Point { return Point{} }

// Norm has an untyped parameter and no return tag.
//
// @param p
func Norm(p Point) float64 { return 0 }

// Broken has a malformed annotation.
//
// @param a [Array<]
func Broken(a int) {}

type Proc func(args ...any) (any, error)
