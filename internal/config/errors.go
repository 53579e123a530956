package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrNoMechanism is returned when Auth.Mechanisms is empty.
	ErrNoMechanism = errors.New("toml config auth.mechanisms needs at least one entry")

	// ErrDuplicateMechanism is returned when two mechanisms share a key.
	ErrDuplicateMechanism = errors.New("duplicate auth mechanism key")

	// ErrMechanismIncomplete is returned when a mechanism misses its kind specific block.
	ErrMechanismIncomplete = errors.New("auth mechanism is missing its kind specific settings")

	// ErrUnknownTokenFormat is returned for an unsupported Auth.TokenFormat.
	ErrUnknownTokenFormat = errors.New("unknown auth.tokenformat")

	// ErrNoPrivateKey is returned when Auth.PrivateKeyFile is empty.
	ErrNoPrivateKey = errors.New("toml config auth.privatekeyfile can not be empty")
)
