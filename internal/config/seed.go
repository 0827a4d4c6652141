package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// SeedCatalog is the list of sample products imported by the seed command.
type SeedCatalog struct {
	Products []SeedProduct `yaml:"products"`
}

type SeedProduct struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	ImageURL string `yaml:"image_url"`
}

// DefaultSeedCatalog returns the embedded sample catalog.
func DefaultSeedCatalog() *SeedCatalog {
	catalog, err := ParseSeedCatalog(seedYAML)
	if err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to parse embedded seed.yaml: " + err.Error())
	}
	return catalog
}

// LoadSeedCatalog reads a seed catalog from a YAML file.
func LoadSeedCatalog(path string) (*SeedCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed catalog: %w", err)
	}
	return ParseSeedCatalog(data)
}

// ParseSeedCatalog parses and validates seed catalog YAML.
func ParseSeedCatalog(data []byte) (*SeedCatalog, error) {
	var catalog SeedCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}
	for i, p := range catalog.Products {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("seed product %d: name is required", i+1)
		}
		if strings.TrimSpace(p.Category) == "" {
			return nil, fmt.Errorf("seed product %d (%s): category is required", i+1, p.Name)
		}
		if !strings.HasPrefix(p.ImageURL, "http://") && !strings.HasPrefix(p.ImageURL, "https://") {
			return nil, fmt.Errorf("seed product %d (%s): image_url must be an http(s) URL", i+1, p.Name)
		}
	}
	return &catalog, nil
}

// Categories returns the distinct categories in catalog order.
func (c *SeedCatalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.Products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out
}

// SeedTopic is a category and the search terms bulk seeding draws names from.
type SeedTopic struct {
	Category string
	Terms    []string
}

// BulkSeedTopics returns the topics used by bulk seeding.
func BulkSeedTopics() []SeedTopic {
	return []SeedTopic{
		{"Animals", []string{"Dog", "Cat", "Elephant", "Lion", "Tiger", "Bear", "Wolf", "Fox", "Rabbit", "Deer"}},
		{"Humans", []string{"Person", "Man", "Woman", "Child", "Athlete", "Musician", "Artist", "Doctor", "Chef", "Dancer"}},
		{"Gadgets", []string{"Smartphone", "Laptop", "Tablet", "Smartwatch", "Headphones", "Camera", "Drone", "Mouse", "Keyboard", "Monitor"}},
		{"Media", []string{"Book", "Magazine", "Newspaper", "DVD", "Vinyl", "Film", "Poster", "Artwork", "Painting", "Photograph"}},
		{"Food", []string{"Apple", "Banana", "Orange", "Grape", "Strawberry", "Pizza", "Burger", "Sandwich", "Salad", "Soup"}},
		{"Nature", []string{"Tree", "Flower", "Mountain", "River", "Ocean", "Cloud", "Forest", "Desert", "Island", "Waterfall"}},
	}
}
