package frostvale

// Protocol error codes sent to clients on the "e" packet. Validation
// failures surface as one of these; decode and store failures are invisible
// to the user except as an absent response.
const (
	ErrorConnectionLost    = 1
	ErrorLoginFailed       = 101
	ErrorWorldFull         = 103
	ErrorRoomFull          = 210
	ErrorItemOwned         = 400
	ErrorInsufficientCoins = 401
	ErrorItemNotFound      = 402
	ErrorMaxPets           = 440
	ErrorInvalidName       = 441
	ErrorNameTaken         = 442
)

// Standard error messages
const (
	ErrConnectionClosed    = "connection is closed"
	ErrWorldAlreadyRunning = "world already running"
	ErrWorldAtCapacity     = "world at capacity"
)
