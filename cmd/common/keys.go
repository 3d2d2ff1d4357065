package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	keyLength       = 32 // 256 bits
	identityKeyFile = "identity_key"
	configDirName   = ".asset-gateway"
)

func generateRandomKey(length int) ([]byte, error) {
	key := make([]byte, length)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate random key: %v", err)
	}
	return key, nil
}

// ConfigDir is $XDG_CONFIG_HOME/asset-gateway, falling back to
// ~/.asset-gateway.
func ConfigDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "asset-gateway"), nil
	}

	home := os.Getenv("HOME")
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not find home directory: %v", err)
		}
	}
	return filepath.Join(home, configDirName), nil
}

// EnsureKeyExists returns the hex key named by filename. The environment
// variable IDENTITY_ENCRYPTION_KEY (derived from the filename) wins;
// otherwise the key is read from the config dir, generated on first use.
func EnsureKeyExists(filename string) (string, error) {
	envKey := strings.ToUpper(strings.TrimSuffix(filename, "_key")) + "_ENCRYPTION_KEY"
	if key := os.Getenv(envKey); key != "" {
		return key, nil
	}

	configDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	keyPath := filepath.Join(configDir, filename)

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %v", err)
	}

	if _, err := os.Stat(keyPath); os.IsNotExist(err) {
		key, err := generateRandomKey(keyLength)
		if err != nil {
			return "", err
		}
		keyString := hex.EncodeToString(key)
		if err := os.WriteFile(keyPath, []byte(keyString), 0600); err != nil {
			return "", fmt.Errorf("failed to write key file: %v", err)
		}
		return keyString, nil
	}

	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return "", fmt.Errorf("failed to read key file: %v", err)
	}
	return strings.TrimSpace(string(keyBytes)), nil
}
