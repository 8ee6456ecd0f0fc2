package model

// FlashConfig describes how to locate this keyboard's mass-storage devices
// for firmware flashing (spec §4.10/component K).
type FlashConfig struct {
	QueryPattern string   `json:"query_pattern,omitempty"`
	VendorIDs    []string `json:"vendor_ids,omitempty"`
	ProductIDs   []string `json:"product_ids,omitempty"`
}

// CompileMethodConfig selects and configures a compilation strategy
// (spec §4.7, component I).
type CompileMethodConfig struct {
	Strategy         string            `json:"strategy"` // "zmk_config" | "moergo"
	Image            string            `json:"image,omitempty"`
	Jobs             int               `json:"jobs,omitempty"`
	ExtraCMakeArgs   []string          `json:"extra_cmake_args,omitempty"`
	Env              map[string]string `json:"env,omitempty"`
}

// FormattingRules controls how the DTSI generator lays out the keymap node
// (spec §4.3 item 2).
type FormattingRules struct {
	KeyWidth   int `json:"key_width,omitempty"`
	KeyGap     int `json:"key_gap,omitempty"`
	RowBreaks  []int `json:"row_breaks,omitempty"` // binding index after which to insert a newline
}

// KeymapConfig holds the keyboard's template text, includes, and catalogs
// used by the DTSI generator and keymap parser.
type KeymapConfig struct {
	TemplateText     string            `json:"template_text"`
	Includes         []string          `json:"includes,omitempty"`
	SystemBehaviors  []string          `json:"system_behaviors,omitempty"`
	KconfigOptions   map[string]KconfigOption `json:"kconfig_options,omitempty"`
	Formatting       FormattingRules   `json:"formatting,omitempty"`
	KeyPositionGrid  [][]int           `json:"key_position_grid,omitempty"` // physical layout: row -> key position indices

	RepoDownloadPattern    string `json:"repo_download_pattern,omitempty"`
	BuildStartPattern      string `json:"build_start_pattern,omitempty"`
	BuildProgressPattern   string `json:"build_progress_pattern,omitempty"`
	BuildCompletePattern   string `json:"build_complete_pattern,omitempty"`
	BoardDetectionPattern  string `json:"board_detection_pattern,omitempty"`
	BoardCompletePattern   string `json:"board_complete_pattern,omitempty"`
}

// KconfigOption describes one Kconfig entry's type, default, and doc string.
type KconfigOption struct {
	Type        string      `json:"type"` // "bool" | "string" | "int"
	Default     interface{} `json:"default,omitempty"`
	Description string      `json:"description,omitempty"`
}

// BuildOptions names the firmware's upstream repository coordinates.
type BuildOptions struct {
	Repository     string `json:"repository"`
	Branch         string `json:"branch"`
	ManifestCommit string `json:"manifest_commit,omitempty"`
}

// FirmwareDescriptor describes one buildable firmware variant of a keyboard
// (spec §3).
type FirmwareDescriptor struct {
	Version      string                   `json:"version"`
	Description  string                   `json:"description,omitempty"`
	BuildOptions BuildOptions             `json:"build_options"`
	Kconfig      map[string]KconfigOption `json:"kconfig,omitempty"`
	DefaultBoards []string                `json:"default_boards,omitempty"`
}

// KeyboardDescriptor is loaded from a YAML file in the profile search path
// (spec §3, §4.1).
type KeyboardDescriptor struct {
	Keyboard       string                        `json:"keyboard"`
	Description    string                        `json:"description,omitempty"`
	Vendor         string                        `json:"vendor,omitempty"`
	KeyCount       int                           `json:"key_count,omitempty"`
	Flash          FlashConfig                   `json:"flash,omitempty"`
	CompileMethods []CompileMethodConfig         `json:"compile_methods,omitempty"`
	Keymap         KeymapConfig                  `json:"keymap,omitempty"`
	Firmwares      map[string]FirmwareDescriptor `json:"firmwares,omitempty"`
	Parent         string                        `json:"parent,omitempty"`

	// Feature predicates, set directly in the descriptor or inherited.
	HasRGB     bool `json:"has_rgb,omitempty"`
	HasOLED    bool `json:"has_oled,omitempty"`
	IsSplit    bool `json:"is_split,omitempty"`
	HasEncoder bool `json:"has_encoder,omitempty"`
}
