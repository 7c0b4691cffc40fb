package accessory

import "fmt"

// Tag prefixes msg with the accessory category and name, as in
// "{SENSOR:寝室} updated".
func Tag(category Category, name, msg string) string {
	return fmt.Sprintf("{%s:%s} %s", category, name, msg)
}
