package mapping

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/go-playground/colors.v1"
)

// HexColor normalises a colour to "#rrggbb". Colours may be expressed in any notation understood by
// go-playground/colors or as a comma separated "r,g,b[,a]" string.
func HexColor(str string) (string, error) {

	str = strings.TrimSpace(str)

	if isComponentColor(str) {

		r, g, b, _, err := parseComponents(str)

		if err != nil {
			return "", err
		}

		str = fmt.Sprintf("rgb(%d,%d,%d)", r, g, b)
	}

	c, err := colors.Parse(str)

	if err != nil {
		return "", fmt.Errorf("Failed to parse colour '%s', %w", str, err)
	}

	return strings.ToLower(c.ToHEX().String()), nil
}

func isComponentColor(str string) bool {
	return strings.Count(str, ",") >= 2 && !strings.Contains(str, "(")
}

func parseComponents(str string) (uint8, uint8, uint8, uint8, error) {

	parts := strings.Split(str, ",")

	if len(parts) < 3 {
		return 0, 0, 0, 0, fmt.Errorf("Invalid colour '%s'", str)
	}

	values := []uint8{0, 0, 0, 255}

	for i, p := range parts {

		if i > 3 {
			break
		}

		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)

		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("Invalid colour component '%s', %w", p, err)
		}

		values[i] = uint8(v)
	}

	return values[0], values[1], values[2], values[3], nil
}
