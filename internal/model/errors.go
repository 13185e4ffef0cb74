package model

import "errors"

var (
	// ConfigErr marks a call that cannot proceed with the given configuration or input shape.
	ConfigErr = errors.New("configuration error")
)
