package resp

import "github.com/R3E-Network/cachegrid/internal/values"

func registerStreamCommands(t map[string]HandlerFunc) {
	t["XADD"] = cmdXAdd
	t["XRANGE"] = cmdXRange
	t["XLEN"] = cmdXLen
}

// cmdXAdd implements XADD key (* | id) field value [field value ...].
func cmdXAdd(ctx *Context) Value {
	if ctx.nargs() < 3 || ctx.nargs()%2 != 1 {
		return Error("ERR wrong number of arguments for 'xadd' command")
	}
	var id values.StreamID
	if ctx.arg(1) != "*" {
		parsed, err := values.ParseStreamID(ctx.arg(1))
		if err != nil {
			return ToValue(err)
		}
		id = parsed
	}

	var fields []string
	var vals [][]byte
	for i := 2; i < ctx.nargs(); i += 2 {
		fields = append(fields, ctx.arg(i))
		vals = append(vals, ctx.argBytes(i+1))
	}

	assigned, err := ctx.Engine.XAdd(ctx.Namespace, ctx.arg(0), id, fields, vals)
	if err != nil {
		return ToValue(err)
	}
	return BulkString(assigned.String())
}

func streamIDBound(s string) (values.StreamID, error) {
	switch s {
	case "-":
		return values.MinStreamID, nil
	case "+":
		return values.MaxStreamID, nil
	default:
		return values.ParseStreamID(s)
	}
}

func cmdXRange(ctx *Context) Value {
	start, err := streamIDBound(ctx.arg(1))
	if err != nil {
		return ToValue(err)
	}
	end, err := streamIDBound(ctx.arg(2))
	if err != nil {
		return ToValue(err)
	}
	count := 0
	if ctx.nargs() >= 5 && ctx.arg(3) == "COUNT" {
		count, _ = parseIntAsInt(ctx.arg(4))
	}

	entries, errv := ctx.Engine.XRange(ctx.Namespace, ctx.arg(0), start, end, count)
	if errv != nil {
		return ToValue(errv)
	}
	elems := make([]Value, len(entries))
	for i, e := range entries {
		fieldElems := make([]Value, 0, len(e.Fields)*2)
		for j, f := range e.Fields {
			fieldElems = append(fieldElems, BulkString(f), BulkBytes(e.Values[j]))
		}
		elems[i] = Array(BulkString(e.ID.String()), Array(fieldElems...))
	}
	return Array(elems...)
}

func cmdXLen(ctx *Context) Value {
	n, err := ctx.Engine.XLen(ctx.Namespace, ctx.arg(0))
	if err != nil {
		return ToValue(err)
	}
	return Integer(int64(n))
}

func parseIntAsInt(s string) (int, bool) {
	n, ok := parseInt(s)
	return int(n), ok
}
