package manifest

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/shipyard/internal/model"
)

// FileName is the manifest file name expected at each package root.
const FileName = "package.yaml"

// depSections are the dependency declaration sections scanned for
// references to workspace packages, in document order: runtime,
// development, and build dependencies.
var depSections = []string{"dependencies", "dev-dependencies", "build-dependencies"}

// Load reads and parses a manifest file into a yaml.v3 document node.
//
// The node tree — rather than a typed struct — is used throughout this
// package because mutation must be surgical: comments, key order, and
// unrelated fields all survive a Load/Save round trip, so rewriting one
// version value never reformats the rest of the file.
func Load(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitManifestError,
			fmt.Sprintf("failed to read manifest %s", path), err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, model.WrapCLIError(model.ExitManifestError,
			fmt.Sprintf("failed to parse manifest %s", path), err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, model.NewCLIError(model.ExitManifestError,
			fmt.Sprintf("manifest %s is not a mapping document", path))
	}
	return &doc, nil
}

// Save writes a document node back to disk with 2-space indentation, the
// same style Load expects, so repeated runs produce stable output.
func Save(path string, doc *yaml.Node) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc.Content[0]); err != nil {
		return model.WrapCLIError(model.ExitManifestError,
			fmt.Sprintf("failed to encode manifest %s", path), err)
	}
	if err := enc.Close(); err != nil {
		return model.WrapCLIError(model.ExitManifestError,
			fmt.Sprintf("failed to encode manifest %s", path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return model.WrapCLIError(model.ExitManifestError,
			fmt.Sprintf("failed to write manifest %s", path), err)
	}
	return nil
}

// SetPackageVersion writes the new version into the manifest's
// package.version field. It returns false — without treating it as an
// error — when the manifest has no package section, which is the case for
// pure aggregator manifests that only declare dependencies.
func SetPackageVersion(doc *yaml.Node, version string) bool {
	pkg := mappingValue(doc.Content[0], "package")
	if pkg == nil || pkg.Kind != yaml.MappingNode {
		return false
	}
	if v := mappingValue(pkg, "version"); v != nil {
		setScalar(v, version)
		return true
	}
	appendScalar(pkg, "version", version)
	return true
}

// UpdateDependencies rewrites dependency declarations that reference any
// package in the changed map (package name → new version string). Both
// declaration forms are supported:
//
//	dep-name: 1.2.3              # bare version scalar
//	dep-name: {version: 1.2.3}   # mapping carrying a version key
//
// A mapping entry without a version key (e.g. a pure path reference) is
// left untouched. Returns true when at least one entry was modified, so
// callers can skip writing files that did not change.
func UpdateDependencies(doc *yaml.Node, changed map[string]string) bool {
	modified := false
	root := doc.Content[0]
	for _, section := range depSections {
		deps := mappingValue(root, section)
		if deps == nil || deps.Kind != yaml.MappingNode {
			continue
		}
		for i := 0; i+1 < len(deps.Content); i += 2 {
			name := deps.Content[i].Value
			newVersion, ok := changed[name]
			if !ok {
				continue
			}
			value := deps.Content[i+1]
			switch value.Kind {
			case yaml.ScalarNode:
				setScalar(value, newVersion)
				modified = true
			case yaml.MappingNode:
				if v := mappingValue(value, "version"); v != nil {
					setScalar(v, newVersion)
					modified = true
				}
			}
		}
	}
	return modified
}

// PackageName returns the manifest's package.name value.
func PackageName(doc *yaml.Node) (string, bool) {
	return packageField(doc, "name")
}

// PackageVersion returns the manifest's package.version value.
func PackageVersion(doc *yaml.Node) (string, bool) {
	return packageField(doc, "version")
}

// DependencyNames returns every dependency name declared across all
// dependency sections, in document order. Used by workspace discovery to
// count internal dependents.
func DependencyNames(doc *yaml.Node) []string {
	var names []string
	root := doc.Content[0]
	for _, section := range depSections {
		deps := mappingValue(root, section)
		if deps == nil || deps.Kind != yaml.MappingNode {
			continue
		}
		for i := 0; i+1 < len(deps.Content); i += 2 {
			names = append(names, deps.Content[i].Value)
		}
	}
	return names
}

func packageField(doc *yaml.Node, key string) (string, bool) {
	pkg := mappingValue(doc.Content[0], "package")
	if pkg == nil || pkg.Kind != yaml.MappingNode {
		return "", false
	}
	v := mappingValue(pkg, key)
	if v == nil || v.Kind != yaml.ScalarNode {
		return "", false
	}
	return v.Value, true
}

// mappingValue returns the value node for a key inside a mapping node, or
// nil when the key is absent. Mapping content alternates key and value
// nodes, hence the stride-2 walk.
func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// setScalar overwrites a node in place with a string scalar value, keeping
// the node's position (and therefore any attached comments) intact.
func setScalar(node *yaml.Node, value string) {
	node.Kind = yaml.ScalarNode
	node.Tag = "!!str"
	node.Value = value
	node.Style = 0
}

// appendScalar appends a key/value scalar pair to a mapping node.
func appendScalar(mapping *yaml.Node, key, value string) {
	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}
