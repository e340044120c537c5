package logtrace

// Fields is a type alias for structured log fields
type Fields map[string]interface{}

// WithFields returns a copy of base with extra fields merged in.
func WithFields(base Fields, extra Fields) Fields {
	fields := Fields{}
	for key, value := range base {
		fields[key] = value
	}
	for key, value := range extra {
		fields[key] = value
	}
	return fields
}

const (
	FieldCorrelationID  = "correlation_id"
	FieldOrigin         = "origin"
	FieldMethod         = "method"
	FieldModule         = "module"
	FieldError          = "error"
	FieldStatus         = "status"
	FieldStage          = "stage"
	FieldBlockNumber    = "block_number"
	FieldSender         = "sender"
	FieldContract       = "contract"
	FieldEndpoint       = "endpoint"
	FieldChainID        = "chain_id"
	FieldNonce          = "nonce"
	FieldGasPrice       = "gas_price"
	FieldGasLimit       = "gas_limit"
	FieldGasUsed        = "gas_used"
	FieldStackTrace     = "stack_trace"
	FieldTxHash         = "tx_hash"
	FieldHashHex        = "hash_hex"
	FieldAlgorithm      = "algorithm"
	FieldDescription    = "description"
	FieldAttempt        = "attempt"
	FieldRecordExists   = "record_exists"
	FieldCacheHit       = "cache_hit"
	FieldConfirmTimeout = "confirm_timeout"
)
