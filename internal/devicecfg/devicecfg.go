// Package devicecfg holds the compiled-in manifest of recognized Feitian
// products (spec.md §6 "Device filter"). It is static configuration, not
// persistent state: the manifest is embedded in the binary and decoded
// once at start-up with the same strict-YAML discipline the teacher uses
// for its on-disk config file (sdmconfig/internal/config/config.go), just
// sourced from go:embed instead of the filesystem.
package devicecfg

import (
	"bytes"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed products.yaml
var manifestYAML []byte

// VendorID is the fixed USB vendor id this agent filters on (spec.md §3, §6).
const VendorID uint16 = 0x096E

// Product describes one recognized product id under VendorID.
type Product struct {
	ID   uint16 `yaml:"id"`
	Name string `yaml:"name"`
}

type manifest struct {
	VendorID uint32    `yaml:"vendor_id"`
	Products []Product `yaml:"products"`
}

var known []Product

func init() {
	dec := yaml.NewDecoder(bytes.NewReader(manifestYAML))
	dec.KnownFields(true)
	var m manifest
	if err := dec.Decode(&m); err != nil {
		panic(fmt.Sprintf("devicecfg: embedded manifest is invalid: %v", err))
	}
	if uint16(m.VendorID) != VendorID {
		panic("devicecfg: embedded manifest vendor_id does not match VendorID constant")
	}
	known = m.Products
}

// NameFor returns the human-readable product name for a recognized product
// id, or "" if the product id is unknown. Spec.md §6: unknown products
// within the vendor are still listed, just without a friendly name.
func NameFor(productID uint16) string {
	for _, p := range known {
		if p.ID == productID {
			return p.Name
		}
	}
	return ""
}

// Known returns the full recognized product list.
func Known() []Product {
	out := make([]Product, len(known))
	copy(out, known)
	return out
}
