package config

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
)

// PackageMetadata is the subset of package.json relstage needs.
type PackageMetadata struct {
	Name    string
	Version string
}

// ReadPackageMetadata reads name and version from a package.json file.
func ReadPackageMetadata(fs afero.Fs, path string) (*PackageMetadata, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read package metadata: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("read package metadata: %s is not valid JSON", path)
	}

	fields := gjson.GetManyBytes(data, "name", "version")
	meta := &PackageMetadata{
		Name:    fields[0].String(),
		Version: fields[1].String(),
	}
	if meta.Name == "" {
		return nil, &FieldError{Key: "name", Reason: "missing from " + path}
	}
	if meta.Version == "" {
		return nil, &FieldError{Key: "version", Reason: "missing from " + path}
	}
	return meta, nil
}

// TarballName returns the file name npm pack gives this package:
// "@scope/name" at 1.2.3 becomes "scope-name-1.2.3.tgz".
func (m PackageMetadata) TarballName() string {
	name := strings.TrimPrefix(m.Name, "@")
	name = strings.ReplaceAll(name, "/", "-")
	return name + "-" + m.Version + ".tgz"
}
