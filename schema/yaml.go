package schema

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ormkit/ormkit/fields"
)

type yamlFile struct {
	Tables []yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Name    string       `yaml:"name"`
	Columns []yamlColumn `yaml:"columns"`
}

type yamlColumn struct {
	Name       string         `yaml:"name"`
	Type       string         `yaml:"type"`
	Primary    bool           `yaml:"primary"`
	Null       bool           `yaml:"null"`
	Unique     bool           `yaml:"unique"`
	Index      bool           `yaml:"index"`
	Default    any            `yaml:"default"`
	AutoNow    bool           `yaml:"auto_now"`
	AutoNowAdd bool           `yaml:"auto_now_add"`
	References *yamlReference `yaml:"references"`
}

type yamlReference struct {
	Table    string `yaml:"table"`
	OnDelete string `yaml:"on_delete"`
	Through  string `yaml:"through"`
}

var sizedType = regexp.MustCompile(`^([a-z_ ]+)\((\d+)(?:\s*,\s*(\d+))?\)$`)

// LoadYAML reads declarative table definitions from a YAML file and builds
// schemas from them. This is the input the makemigrations diff runs against.
func LoadYAML(path string) ([]*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}

	var schemas []*Schema
	for _, t := range yf.Tables {
		fs := make([]fields.Field, 0, len(t.Columns))
		for _, c := range t.Columns {
			f, err := buildField(c)
			if err != nil {
				return nil, fmt.Errorf("table %s: %w", t.Name, err)
			}
			fs = append(fs, f)
		}
		s, err := New(t.Name, fs...)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}
	if err := ValidateAll(schemas); err != nil {
		return nil, err
	}
	return schemas, nil
}

func buildField(c yamlColumn) (fields.Field, error) {
	var opts []fields.Option
	if c.Primary {
		opts = append(opts, fields.PrimaryKey())
	}
	if c.Null {
		opts = append(opts, fields.Null())
	}
	if c.Unique {
		opts = append(opts, fields.Unique())
	}
	if c.Index {
		opts = append(opts, fields.Index())
	}
	if c.Default != nil {
		opts = append(opts, fields.Default(c.Default))
	}

	if c.References != nil {
		onDelete := fields.ReferentialAction(strings.ToUpper(c.References.OnDelete))
		if strings.EqualFold(c.Type, "manytomany") {
			f := fields.ManyToMany(c.Name, c.References.Table, opts...)
			if c.References.Through != "" {
				f = f.Through(c.References.Through)
			}
			return f, nil
		}
		if strings.EqualFold(c.Type, "onetoone") {
			return fields.OneToOne(c.Name, c.References.Table, onDelete, opts...), nil
		}
		return fields.ForeignKey(c.Name, c.References.Table, onDelete, opts...), nil
	}

	kind := strings.ToLower(strings.TrimSpace(c.Type))
	size, scale := 0, 0
	if m := sizedType.FindStringSubmatch(kind); m != nil {
		kind = strings.TrimSpace(m[1])
		size, _ = strconv.Atoi(m[2])
		if m[3] != "" {
			scale, _ = strconv.Atoi(m[3])
		}
	}

	switch kind {
	case "char", "varchar", "string":
		if size == 0 {
			size = 255
		}
		return fields.Char(c.Name, size, opts...), nil
	case "text":
		return fields.Text(c.Name, opts...), nil
	case "integer", "int":
		return fields.Integer(c.Name, opts...), nil
	case "bigint", "biginteger":
		return fields.BigInteger(c.Name, opts...), nil
	case "smallint", "smallinteger":
		return fields.SmallInteger(c.Name, opts...), nil
	case "auto", "serial":
		return fields.Auto(c.Name), nil
	case "float", "double", "double precision":
		return fields.Float(c.Name, opts...), nil
	case "decimal", "numeric":
		if size == 0 {
			return nil, fmt.Errorf("column %s: decimal requires digits and places, e.g. decimal(10,2)", c.Name)
		}
		return fields.Decimal(c.Name, size, scale, opts...), nil
	case "boolean", "bool":
		return fields.Boolean(c.Name, opts...), nil
	case "date":
		return fields.Date(c.Name, opts...), nil
	case "datetime", "timestamp":
		f := fields.DateTime(c.Name, opts...)
		if c.AutoNow {
			f = f.AutoNow()
		}
		if c.AutoNowAdd {
			f = f.AutoNowAdd()
		}
		return f, nil
	case "time":
		return fields.Time(c.Name, opts...), nil
	case "duration", "interval":
		return fields.Duration(c.Name, opts...), nil
	case "binary", "blob", "bytea":
		return fields.Binary(c.Name, opts...), nil
	case "uuid":
		return fields.UUID(c.Name, opts...), nil
	case "email":
		return fields.Email(c.Name, opts...), nil
	case "url":
		return fields.URL(c.Name, opts...), nil
	case "slug":
		return fields.Slug(c.Name, opts...), nil
	case "ip", "ipv4":
		return fields.IPAddress(c.Name, opts...), nil
	case "genericip":
		return fields.GenericIPAddress(c.Name, fields.Both, opts...), nil
	}
	return nil, fmt.Errorf("column %s: unknown type %q", c.Name, c.Type)
}
