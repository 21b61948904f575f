package constants

type ContextKey string

const (
	AppKey       ContextKey = "app"
	TxKey        ContextKey = "tx"
	PoolKey      ContextKey = "pool"
	ParamsKey    ContextKey = "params"
	LoggerKey    ContextKey = "logger"
	RequestStart ContextKey = "requestStart"
	AccessKey    ContextKey = "access"
)
