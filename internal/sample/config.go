package sample

// Config sizes the sample workload.
type Config struct {
	Persons   int `env:"SAMPLE_PERSONS" envDefault:"300000" yaml:"persons"`     // Persons is the number of persons inserted on start.
	BatchSize int `env:"SAMPLE_BATCH_SIZE" envDefault:"10000" yaml:"batchSize"` // BatchSize is the number of persons per InsertMany call.
	Workers   int `env:"SAMPLE_WORKERS" envDefault:"4" yaml:"workers"`          // Workers bounds the concurrent InsertMany calls.
}
