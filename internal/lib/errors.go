package lib

import "fmt"

// WrapError attaches child as the cause of parent, both remain reachable through errors.Is
func WrapError(parent error, child error) error {
	if child == nil {
		return parent
	}
	return fmt.Errorf("%w: %w", parent, child)
}
