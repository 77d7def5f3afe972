package httpapi

import "github.com/R3E-Network/cachegrid/internal/resp"

// valueToJSON renders a dispatched command's RESP reply as the shape an
// HTTP/JSON caller expects: bulk/simple strings and integers unwrap to
// their bare value, errors become a Go error the caller maps to the
// {error, code} envelope, and arrays recurse.
func valueToJSON(v resp.Value) (interface{}, error) {
	switch v.Kind {
	case resp.KindError:
		return nil, commandError(v.Str)
	case resp.KindInteger:
		return v.Int, nil
	case resp.KindSimpleString:
		return v.Str, nil
	case resp.KindBulkString:
		if v.IsNil {
			return nil, nil
		}
		return v.Str, nil
	case resp.KindArray:
		elems := make([]interface{}, len(v.Array))
		for i, e := range v.Array {
			jv, err := valueToJSON(e)
			if err != nil {
				return nil, err
			}
			elems[i] = jv
		}
		return elems, nil
	default:
		return nil, nil
	}
}

// commandError wraps a RESP error reply's message ("ERR ...", "WRONGTYPE
// ...") so the caller can distinguish command failures from request
// validation failures without re-parsing the RESP prefix.
type commandError string

func (e commandError) Error() string { return string(e) }
