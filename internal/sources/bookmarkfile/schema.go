package bookmarkfile

// LinkEntry represents a single link entry in the YAML
type LinkEntry struct {
	Title       string   `yaml:"title"`
	URL         string   `yaml:"url"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Favorite    bool     `yaml:"favorite"`
	Notes       string   `yaml:"notes"`
}

// CategoryEntry represents a category with its links
type CategoryEntry struct {
	Name        string      `yaml:"name"`
	Color       string      `yaml:"color"`
	Icon        string      `yaml:"icon"`
	Description string      `yaml:"description"`
	Links       []LinkEntry `yaml:"links"`
}

// ImportConfig is the root structure for the import file
type ImportConfig struct {
	Categories []CategoryEntry `yaml:"categories"`
}
