package quote

import "errors"

// ErrorKind categorizes quoting errors so callers can decide how to surface them.
type ErrorKind string

const (
	KindUserInput     ErrorKind = "user_input"     // unparseable message, unknown product, no slab
	KindDataIntegrity ErrorKind = "data_integrity" // bad sheet data: discount out of range, bad price cell
	KindCollaborator  ErrorKind = "collaborator"   // sheets, ledger or messaging call failed
	KindConfiguration ErrorKind = "configuration"  // unknown client id
	KindUnknown       ErrorKind = "unknown"
)

var (
	ErrNoMatch            = errors.New("message does not match quote format")
	ErrProductNotFound    = errors.New("product not found in price list")
	ErrNoPrice            = errors.New("no price available for quantity")
	ErrQuantityTooLarge   = errors.New("quantity above maximum")
	ErrDiscountOutOfRange = errors.New("discount percent outside [0, 100]")
	ErrBadPriceCell       = errors.New("price cell is not a number")
)

// Error wraps an underlying error with its kind and the operation that failed.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func UserInput(op string, err error) error {
	return &Error{Kind: KindUserInput, Op: op, Err: err}
}

func DataIntegrity(op string, err error) error {
	return &Error{Kind: KindDataIntegrity, Op: op, Err: err}
}

func Collaborator(op string, err error) error {
	return &Error{Kind: KindCollaborator, Op: op, Err: err}
}

func Configuration(op string, err error) error {
	return &Error{Kind: KindConfiguration, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return KindUnknown
}
