package common

// Closable is the interface for objects that can release their resources.
type Closable interface {
	// Close releases all resources used by this object, including goroutines, if any.
	Close() error
}

// Interruptible is an interface for objects that can be stopped before its completion.
type Interruptible interface {
	Interrupt()
}

// Close closes the obj if it is a Closable.
func Close(obj interface{}) error {
	if c, ok := obj.(Closable); ok {
		return c.Close()
	}
	return nil
}

// CloseIfExists closes the obj if it is not nil and a Closable.
func CloseIfExists(obj interface{}) error {
	if obj == nil {
		return nil
	}
	return Close(obj)
}

// Interrupt interrupts the obj if it is Interruptible, or closes it otherwise.
func Interrupt(obj interface{}) error {
	if c, ok := obj.(Interruptible); ok {
		c.Interrupt()
		return nil
	}
	return Close(obj)
}

// Runnable is the interface for objects that can start to work and stop on demand.
type Runnable interface {
	// Start starts the runnable object. Upon the method returning nil, the object begins to function properly.
	Start() error

	Closable
}

// HasType is the interface for objects that knows its type.
type HasType interface {
	// Type returns the type of the object.
	Type() interface{}
}
