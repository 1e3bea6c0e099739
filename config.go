package barn

// DbConfig is the user-supplied configuration for an open store:
// engine sizing/durability hints, which schema-declared resources to
// materialize, and per-resource id/index configuration.
type DbConfig struct {
	DbSize                 int64                     `yaml:"db_size" json:"db_size"`
	NoSync                 bool                      `yaml:"no_sync" json:"no_sync"`
	AllowConfResourcesOnly bool                      `yaml:"allow_conf_resources_only" json:"allow_conf_resources_only"`
	ResourceDefaults       ResourceDefaults          `yaml:"resource_defaults" json:"resource_defaults"`
	Resources              map[string]ResourceConf   `yaml:"resources" json:"resources"`
}

// ResourceDefaults supplies the id-attribute policy for any resource
// in the config whose ResourceConf leaves IDAttrName/IDAttrType unset.
type ResourceDefaults struct {
	IDAttrName string `yaml:"id_attr_name" json:"id_attr_name"`
	IDAttrType string `yaml:"id_attr_type" json:"id_attr_type"`
}

// ResourceConf configures one resource. A nil IDAttrName/IDAttrType
// falls back to ResourceDefaults.
type ResourceConf struct {
	IDAttrName *string     `yaml:"id_attr_name,omitempty" json:"id_attr_name,omitempty"`
	IDAttrType *string     `yaml:"id_attr_type,omitempty" json:"id_attr_type,omitempty"`
	Indices    []IndexConf `yaml:"indices" json:"indices"`
}

// IndexConf declares one secondary index on a resource.
type IndexConf struct {
	AttrPath string `yaml:"attr_path" json:"attr_path"`
	Unique   bool   `yaml:"unique" json:"unique"`
}

// DefaultDbConfig builds a single-resource, zero-index configuration
// for resourceName, used by the CLI when --conf-file is omitted. It
// mirrors the original source's DbConf::new convenience constructor:
// a 64MiB size hint, durability preserved (no_sync=false), and the
// resource's id stamped into "_rowid" as an engine-assigned integer.
func DefaultDbConfig(resourceName string) DbConfig {
	return DbConfig{
		DbSize:                 64 * 1024 * 1024,
		NoSync:                 false,
		AllowConfResourcesOnly: false,
		ResourceDefaults: ResourceDefaults{
			IDAttrName: "_rowid",
			IDAttrType: "integer",
		},
		Resources: map[string]ResourceConf{
			resourceName: {},
		},
	}
}

func (c DbConfig) idAttrFor(resourceName string) (name, typ string) {
	name, typ = c.ResourceDefaults.IDAttrName, c.ResourceDefaults.IDAttrType
	conf, ok := c.Resources[resourceName]
	if !ok {
		return name, typ
	}
	if conf.IDAttrName != nil {
		name = *conf.IDAttrName
	}
	if conf.IDAttrType != nil {
		typ = *conf.IDAttrType
	}
	return name, typ
}
