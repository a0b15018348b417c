// Command apikey prints a new admin API key and the config entry holding
// its bcrypt hash. The key itself is shown once and never stored.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"lending-admin-api/internal/apikey"
	"lending-admin-api/internal/infrastructure/config"
)

func main() {
	var (
		prefix = flag.String("prefix", "sk", "key prefix (2-10 lowercase letters or digits)")
		name   = flag.String("name", "", "key name, e.g. the operator it is issued to")
		role   = flag.String("role", "admin", "casbin role granted to the key")
		cost   = flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	)
	flag.Parse()

	if *name == "" {
		log.Fatal("-name is required")
	}

	key, hash, err := apikey.GenerateAPIKey(*prefix, *cost)
	if err != nil {
		log.Fatalf("Failed to generate API key: %v", err)
	}

	entry := []config.AdminKeyConfig{{Name: *name, Role: *role, Hash: hash}}
	out, err := yaml.Marshal(map[string]any{
		"security": map[string]any{"admin_keys": entry},
	})
	if err != nil {
		log.Fatalf("Failed to encode config entry: %v", err)
	}

	fmt.Fprintf(os.Stderr, "API key for %s (%s), shown once:\n", *name, apikey.MaskAPIKey(key))
	fmt.Println(key)
	fmt.Fprintln(os.Stderr, "\nAdd to configs/app.yaml:")
	fmt.Fprint(os.Stderr, string(out))
}
