package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/omeid/uconfig/flat"
	"gitlab.com/TitanInd/milestone-escrow/internal/lib"
)

const (
	TagEnv  = "env"
	TagFlag = "flag"
	TagDesc = "desc"
)

var (
	ErrEnvLoad          = errors.New("cannot load .env file")
	ErrFlagParse        = errors.New("cannot parse flag")
	ErrConfigInvalid    = errors.New("invalid config struct")
	ErrConfigValidation = errors.New("config validation error")
)

// LoadConfig fills cfg from the environment and command line flags, flags take precedence.
// A .env file in the working directory is loaded first if present, it never overrides
// variables already set in the environment
func LoadConfig(cfg *Config, osArgs *[]string) error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return lib.WrapError(ErrEnvLoad, err)
	}

	// recursively iterates over each field of the nested struct
	fields, err := flat.View(cfg)
	if err != nil {
		return lib.WrapError(ErrConfigInvalid, err)
	}

	flagset := flag.NewFlagSet("", flag.ContinueOnError)

	for _, field := range fields {
		envName, ok := field.Tag(TagEnv)
		if !ok {
			continue
		}

		if envValue, ok := os.LookupEnv(envName); ok {
			if err := field.Set(envValue); err != nil {
				return lib.WrapError(ErrConfigInvalid, fmt.Errorf("%s: %w", envName, err))
			}
		}

		flagName, ok := field.Tag(TagFlag)
		if !ok {
			continue
		}

		flagDesc, _ := field.Tag(TagDesc)

		// writes flag value to variable
		flagset.Var(field, flagName, flagDesc)
	}

	var args []string
	if osArgs != nil {
		args = *osArgs
	} else {
		args = os.Args
	}

	// flags override .env variables
	if len(args) > 0 {
		err = flagset.Parse(args[1:])
		if err != nil {
			return lib.WrapError(ErrFlagParse, err)
		}
	}

	cfg.SetDefaults()

	err = newValidator().Struct(cfg)
	if err != nil {
		return lib.WrapError(ErrConfigValidation, err)
	}

	if cfg.Custody.Mode == CustodyModeEthereum && cfg.Custody.Mnemonic == "" && cfg.Custody.WalletPrivateKey == "" {
		return lib.WrapError(ErrConfigValidation, fmt.Errorf("ethereum custody requires a mnemonic or a wallet private key"))
	}

	return nil
}

// newValidator adds the "duration" tag, a non-negative time.Duration
func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.Int64 || field.Type() != reflect.TypeOf(time.Duration(0)) {
			return false
		}
		return field.Int() >= 0
	})
	return validate
}
