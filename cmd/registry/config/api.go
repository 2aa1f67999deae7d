package config

import "github.com/craterio/registry/storage"

// apiConf holds API-related configuration
type apiConf struct {
	Argon2idParams storage.Argon2idParams `yaml:"password_hashing"`
}

var defaultAPIConf = apiConf{
	Argon2idParams: storage.Argon2idParams{
		Time:        1,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
		KeyLen:      32,
		SaltLen:     16,
	},
}
