package neo4j

type Config struct {
	URI      string `env:"NEO4J_URI,default=bolt://localhost:7687"`
	Username string `env:"NEO4J_USERNAME,default=neo4j"`
	Password string `env:"NEO4J_PASSWORD,default="`
	Database string `env:"NEO4J_DATABASE,default=neo4j"`
}
