// Package config loads the bookworm-infra configuration.
//
// Five inputs are required and come from the environment only: the
// target account and region, the IAM user name owning the IDE and the
// GitHub organization and repository trusted through OIDC. Everything
// else has a default and can be overridden from a YAML config file or
// BOOKWORM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides of optional settings,
// e.g. BOOKWORM_OUT_DIR or BOOKWORM_IDE_INSTANCE_SIZE.
const EnvPrefix = "BOOKWORM"

// Keys of optional settings.
const (
	KeyOutDir            = "out_dir"
	KeyFormat            = "format"
	KeyIDEInstanceClass  = "ide.instance_class"
	KeyIDEInstanceSize   = "ide.instance_size"
	KeyAssetsUploadCover = "assets.upload_cover"
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
)

// requiredInput is a required setting and the environment variables it
// is read from, in order of precedence.
type requiredInput struct {
	key  string
	envs []string
}

var requiredInputs = []requiredInput{
	{"account", []string{"AWS_ACCOUNT_ID", "CDK_DEFAULT_ACCOUNT"}},
	{"region", []string{"AWS_REGION", "CDK_DEFAULT_REGION"}},
	{"username", []string{"AWS_USERNAME"}},
	{"github.org", []string{"GITHUB_ORG_NAME"}},
	{"github.repo", []string{"GITHUB_REPO_NAME"}},
}

// MissingEnvError reports a required environment variable that is unset.
type MissingEnvError struct {
	// Names lists the accepted variable names, in order of precedence.
	Names []string
}

func (e *MissingEnvError) Error() string {
	quoted := make([]string, len(e.Names))
	for i, n := range e.Names {
		quoted[i] = "`" + n + "`"
	}
	return fmt.Sprintf("environment variable %s is required", strings.Join(quoted, " or "))
}

// IsMissingEnv reports whether err is a *MissingEnvError.
func IsMissingEnv(err error) bool {
	var missing *MissingEnvError
	return errors.As(err, &missing)
}

// GitHub identifies the repository whose workflows may assume the OIDC roles.
type GitHub struct {
	Org  string
	Repo string
}

// IDE sizes the development environment instance.
type IDE struct {
	InstanceClass string
	InstanceSize  string
}

// Assets locates the artifacts deployed with the stacks.
type Assets struct {
	UploadCover string
}

// Log configures the CLI logger.
type Log struct {
	Level  string
	Format string
}

// Config is the complete bookworm-infra configuration.
type Config struct {
	Account  string
	Region   string
	Username string
	GitHub   GitHub

	OutDir string
	Format string
	IDE    IDE
	Assets Assets
	Log    Log
}

// SetDefaults registers the defaults of every optional setting.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyOutDir, "cdk.out")
	v.SetDefault(KeyFormat, "json")
	v.SetDefault(KeyIDEInstanceClass, "m5")
	v.SetDefault(KeyIDEInstanceSize, "large")
	v.SetDefault(KeyAssetsUploadCover, "services/bookworm-upload-cover/bookworm-upload-cover.zip")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
}

// New returns a viper instance with defaults and BOOKWORM_* environment
// overrides. A non-empty configFile is read as YAML.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Load resolves the configuration. Required inputs are checked in a fixed
// order and the first missing one is returned as a *MissingEnvError.
func Load(settings *viper.Viper) (*Config, error) {
	// Required inputs are bound on their own instance so that a config
	// file can never supply them.
	env := viper.New()
	for _, in := range requiredInputs {
		if err := env.BindEnv(append([]string{in.key}, in.envs...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", in.key, err)
		}
	}

	for _, in := range requiredInputs {
		if strings.TrimSpace(env.GetString(in.key)) == "" {
			return nil, &MissingEnvError{Names: in.envs}
		}
	}

	cfg := &Config{
		Account:  env.GetString("account"),
		Region:   env.GetString("region"),
		Username: env.GetString("username"),
		GitHub: GitHub{
			Org:  env.GetString("github.org"),
			Repo: env.GetString("github.repo"),
		},
		OutDir: settings.GetString(KeyOutDir),
		Format: settings.GetString(KeyFormat),
		IDE: IDE{
			InstanceClass: settings.GetString(KeyIDEInstanceClass),
			InstanceSize:  settings.GetString(KeyIDEInstanceSize),
		},
		Assets: Assets{
			UploadCover: settings.GetString(KeyAssetsUploadCover),
		},
		Log: Log{
			Level:  settings.GetString(KeyLogLevel),
			Format: settings.GetString(KeyLogFormat),
		},
	}
	return cfg, nil
}
