package model

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Level is the severity of an error log. Only the declared values are valid.
type Level string

const (
	LevelError   Level = "ERROR"
	LevelDebug   Level = "DEBUG"
	LevelWarning Level = "WARNING"
)

// Levels returns every valid level in declaration order.
func Levels() []Level {
	return []Level{LevelError, LevelDebug, LevelWarning}
}

func (l Level) Valid() bool {
	return slices.Contains(Levels(), l)
}

// ParseLevel converts a raw value into a Level, rejecting anything outside the enum.
func ParseLevel(raw string) (Level, error) {
	l := Level(raw)
	if !l.Valid() {
		return "", &InvalidChoiceError{Value: raw}
	}
	return l, nil
}

func (l *Level) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseLevel(raw)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Environment is the deployment stage an error log was reported from.
type Environment string

const (
	EnvironmentProduction   Environment = "PRODUCTION"
	EnvironmentHomologation Environment = "HOMOLOGATION"
	EnvironmentDevelopment  Environment = "DEVELOPMENT"
)

// Environments returns every valid environment in declaration order.
func Environments() []Environment {
	return []Environment{EnvironmentProduction, EnvironmentHomologation, EnvironmentDevelopment}
}

func (e Environment) Valid() bool {
	return slices.Contains(Environments(), e)
}

// ParseEnvironment converts a raw value into an Environment, rejecting anything outside the enum.
func ParseEnvironment(raw string) (Environment, error) {
	e := Environment(raw)
	if !e.Valid() {
		return "", &InvalidChoiceError{Value: raw}
	}
	return e, nil
}

func (e *Environment) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseEnvironment(raw)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// InvalidChoiceError is returned when a value is not one of an enum's members.
type InvalidChoiceError struct {
	Value string
}

func (e *InvalidChoiceError) Error() string {
	return fmt.Sprintf("%q is not a valid choice.", e.Value)
}
