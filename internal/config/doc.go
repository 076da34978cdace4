// Package config defines the format-agnostic configuration model of the
// application and the Loader interface that file formats implement.
//
// The `config.Model` is the single source of truth for the app wiring.
// Every loader applies the same defaults and validation after decoding, so a
// YAML file and an HCL file describing the same settings yield equal models.
// The HCL implementation lives in the hcl_adapter package.
package config
