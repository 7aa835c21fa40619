package vault

type Config struct {
	// Key is the base64 encoding of a 32 byte secret.
	Key string `mapstructure:"key"`
}
