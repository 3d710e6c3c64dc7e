package helpers

// ConfigOption is implemented by the options of a variadic options pattern. See ApplyOptions.
type ConfigOption[T any] interface {
	Configure(*T) error
}

// ConfigOptionFunc adapts a function to ConfigOption.
type ConfigOptionFunc[T any] func(*T) error

func (f ConfigOptionFunc[T]) Configure(target *T) error { return f(target) }

// ApplyOptions applies each option to the target in order, stopping at the first error.
//
// The U type parameter lets callers declare their own named option type instead of
// using ConfigOption[T] directly.
func ApplyOptions[T any, U ConfigOption[T]](target *T, options ...U) error {
	for _, o := range options {
		if err := o.Configure(target); err != nil {
			return err
		}
	}
	return nil
}
