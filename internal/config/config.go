// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. GOVCL_TITLE.
	EnvPrefix = "GOVCL"

	// EnvJSON holds a JSON document merged over the file config.
	EnvJSON = EnvPrefix + "_CONFIG_JSON"

	defaultValidityMinutes = 600
	defaultDirectoryPort   = 636
	defaultShutDownTime    = 5
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	// "::" keeps dotted map keys like eppn scopes intact.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path + "main.toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("::", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read json config override")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the service cannot start without and fills in defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	return validateAuth(&c.Auth)
}

func validateAuth(a *Auth) error {
	invalidErrMessage := "invalid auth config"

	if a.PrivateKeyFile == "" {
		return errors.Wrap(ErrNoPrivateKey, invalidErrMessage)
	}

	if a.ValidityMinutes <= 0 {
		a.ValidityMinutes = defaultValidityMinutes
	}

	if a.EntryPoint == "" {
		a.EntryPoint = "/"
	}

	switch a.TokenFormat {
	case "":
		a.TokenFormat = TokenFormatPKCS1
	case TokenFormatPKCS1, TokenFormatJWT:
	default:
		return errors.Wrap(ErrUnknownTokenFormat, a.TokenFormat)
	}

	if a.Demo.NoDemoAffiliation == "" {
		a.Demo.NoDemoAffiliation = "Global"
	}

	if a.Shibboleth.MechanismKey == "" {
		a.Shibboleth.MechanismKey = "Shibboleth"
	}

	if a.Shibboleth.EPPNHeader == "" {
		a.Shibboleth.EPPNHeader = "eppn"
	}

	if a.Shibboleth.SessionHeader == "" {
		a.Shibboleth.SessionHeader = "Shib-Session-ID"
	}

	if len(a.Mechanisms) == 0 {
		return errors.Wrap(ErrNoMechanism, invalidErrMessage)
	}

	validate := validator.New()
	seen := make(map[string]bool, len(a.Mechanisms))

	for i := range a.Mechanisms {
		m := &a.Mechanisms[i]

		if err := validate.Struct(m); err != nil {
			return errors.Wrapf(err, "%s: mechanism #%d", invalidErrMessage, i)
		}

		if seen[m.Key] {
			return errors.Wrap(ErrDuplicateMechanism, m.Key)
		}

		seen[m.Key] = true

		if err := completeMechanism(validate, m); err != nil {
			return errors.Wrapf(err, "%s: mechanism %q", invalidErrMessage, m.Key)
		}
	}

	return nil
}

func completeMechanism(validate *validator.Validate, m *Mechanism) error {
	switch m.Kind {
	case KindRedirect:
		if m.OIDC != nil {
			return validate.Struct(m.OIDC) //nolint: wrapcheck
		}

		if m.RedirectURL == "" {
			return ErrMechanismIncomplete
		}
	case KindDirectory:
		if m.Directory == nil {
			return ErrMechanismIncomplete
		}

		if err := validate.Struct(m.Directory); err != nil {
			return err //nolint: wrapcheck
		}

		if m.Directory.Lookup == nil && !strings.Contains(m.Directory.BindTemplate, "%s") {
			return ErrMechanismIncomplete
		}

		if m.Directory.Port == 0 {
			m.Directory.Port = defaultDirectoryPort
		}
	}

	return nil
}
