package config

// Config represents the structure of config.yml used by the tool.
// Environment variables override the file (see connectors/config).
type Config struct {
	Source   string `yaml:"source" validate:"oneof=drive dir demo"`
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	Drive struct {
		// ServiceAccountJSON is the service credential blob, not a path.
		ServiceAccountJSON string `yaml:"service_account_json"`
		Files              Files  `yaml:"files"`
	} `yaml:"drive"`

	// DataDir holds the three spreadsheets for the dir source and receives CSV snapshots.
	DataDir string `yaml:"data_dir" validate:"required"`
	// Files names the spreadsheets inside DataDir for the dir source.
	LocalFiles Files `yaml:"local_files"`

	KeyColumn string `yaml:"key_column"`
	TopN      int    `yaml:"top_n" validate:"min=1,max=50"`

	Web struct {
		Addr    string `yaml:"addr" validate:"required"`
		Preload bool   `yaml:"preload"`
	} `yaml:"web"`
}

// Files identifies the three fact spreadsheets: Drive file ids or local file names.
type Files struct {
	Date     string `yaml:"fato_data"`
	Hour     string `yaml:"fato_hora"`
	Location string `yaml:"fato_local"`
}
