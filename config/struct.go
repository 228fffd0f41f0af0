package config

type Config struct {
	// General configuration
	Env string `yaml:"env" mapstructure:"env" validate:"required"`
	Log Log    `yaml:"log" mapstructure:"log" validate:"required"`
	App App    `yaml:"app" mapstructure:"app" validate:"required"`

	// Infrastructure components
	Database  Database  `yaml:"database" mapstructure:"database" validate:"required"`
	Filestore Filestore `yaml:"filestore" mapstructure:"filestore" validate:"required"`
}

type App struct {
	Name string `yaml:"name" mapstructure:"name" validate:"required"`
	Addr string `yaml:"addr" mapstructure:"addr" validate:"required,hostname_port"`
	// DetectContentType sniffs uploads sent without a Content-Type header.
	DetectContentType bool `yaml:"detectContentType" mapstructure:"detectContentType"`
}

type Log struct {
	Level     string `yaml:"level" mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format    string `yaml:"format" mapstructure:"format" validate:"oneof=json text"`
	AddSource bool   `yaml:"addSource" mapstructure:"addSource"`
}

type Database struct {
	// Path is the sqlite database file holding the session journal.
	Path string `yaml:"path" mapstructure:"path" validate:"required"`
}

type Filestore struct {
	Type string `yaml:"type" mapstructure:"type" validate:"required,oneof=memory local s3 minio storj"`
	// ChunkSize is a human readable size such as "5MiB".
	ChunkSize string `yaml:"chunkSize" mapstructure:"chunkSize" validate:"required"`
	TempDir   string `yaml:"tempDir" mapstructure:"tempDir"`
	// PageSize caps the number of keys per listing page; zero keeps the backend default.
	PageSize int  `yaml:"pageSize" mapstructure:"pageSize" validate:"gte=0"`
	LockKeys bool `yaml:"lockKeys" mapstructure:"lockKeys"`

	Local LocalFilestore `yaml:"local" mapstructure:"local"`
	S3    S3Filestore    `yaml:"s3" mapstructure:"s3"`
	Minio MinioFilestore `yaml:"minio" mapstructure:"minio"`
	Storj StorjFilestore `yaml:"storj" mapstructure:"storj"`
	Cache Cache          `yaml:"cache" mapstructure:"cache"`
}

type LocalFilestore struct {
	Root string `yaml:"root" mapstructure:"root"`
}

type S3Filestore struct {
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	Region          string `yaml:"region" mapstructure:"region"`
	Endpoint        string `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `yaml:"accessKeyID" mapstructure:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey" mapstructure:"secretAccessKey"`
	ForcePathStyle  bool   `yaml:"forcePathStyle" mapstructure:"forcePathStyle"`
}

type MinioFilestore struct {
	Endpoint        string `yaml:"endpoint" mapstructure:"endpoint"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	Region          string `yaml:"region" mapstructure:"region"`
	AccessKeyID     string `yaml:"accessKeyID" mapstructure:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey" mapstructure:"secretAccessKey"`
	UseSSL          bool   `yaml:"useSSL" mapstructure:"useSSL"`
}

type StorjFilestore struct {
	AccessGrant string `yaml:"accessGrant" mapstructure:"accessGrant"`
	Bucket      string `yaml:"bucket" mapstructure:"bucket"`
}

type Cache struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Root    string `yaml:"root" mapstructure:"root" validate:"required_if=Enabled true"`
	// MaxSize is a human readable size such as "512MiB"; empty means unbounded.
	MaxSize string `yaml:"maxSize" mapstructure:"maxSize"`
}
