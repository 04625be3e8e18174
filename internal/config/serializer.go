package config

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Serializer 配置文件格式
type Serializer interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
	Name() string
}

// YAMLSerializer YAML格式
type YAMLSerializer struct{}

func (YAMLSerializer) Marshal(v interface{}) ([]byte, error) {
	return yaml.Marshal(v)
}

func (YAMLSerializer) Unmarshal(data []byte, v interface{}) error {
	return yaml.UnmarshalStrict(data, v)
}

func (YAMLSerializer) Name() string { return "yaml" }

// JSONSerializer JSON格式
type JSONSerializer struct{}

func (JSONSerializer) Marshal(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func (JSONSerializer) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (JSONSerializer) Name() string { return "json" }

// serializerFor 按文件后缀选择格式，未知后缀按 YAML 处理
func serializerFor(path string) Serializer {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSONSerializer{}
	default:
		return YAMLSerializer{}
	}
}
