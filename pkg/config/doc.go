// Package config defines the lattice configuration model and its YAML
// loader. Configuration comes from a YAML file, then LATTICE_* environment
// overrides, with defaults applied before validation.
package config
