package http1

// Method identifies the HTTP request method as a small integer so the
// parser and router can switch on it without string comparison.
type Method uint8

const (
	MethodUnknown Method = iota
	MethodGET
	MethodPUT
	MethodPOST
	MethodHEAD
	MethodPATCH
	MethodDELETE
	MethodOPTIONS
	MethodCONNECT
	MethodTRACE
)

func (m Method) String() string {
	switch m {
	case MethodGET:
		return "GET"
	case MethodPUT:
		return "PUT"
	case MethodPOST:
		return "POST"
	case MethodHEAD:
		return "HEAD"
	case MethodPATCH:
		return "PATCH"
	case MethodDELETE:
		return "DELETE"
	case MethodOPTIONS:
		return "OPTIONS"
	case MethodCONNECT:
		return "CONNECT"
	case MethodTRACE:
		return "TRACE"
	default:
		return ""
	}
}

// matchMethod4 checks the four little-endian-ordered bytes of a
// fixed-width method name against one of the patterns the parser's
// fast path recognizes: "GET ", "PUT ", "POST", "HEAD", "PATC",
// "DELE", "OPTI".
func matchMethod4(b [4]byte) (Method, int) {
	switch {
	case b[0] == 'G' && b[1] == 'E' && b[2] == 'T' && b[3] == ' ':
		return MethodGET, 3
	case b[0] == 'P' && b[1] == 'U' && b[2] == 'T' && b[3] == ' ':
		return MethodPUT, 3
	case b[0] == 'P' && b[1] == 'O' && b[2] == 'S' && b[3] == 'T':
		return MethodPOST, 4
	case b[0] == 'H' && b[1] == 'E' && b[2] == 'A' && b[3] == 'D':
		return MethodHEAD, 4
	case b[0] == 'P' && b[1] == 'A' && b[2] == 'T' && b[3] == 'C':
		return MethodPATCH, 5
	case b[0] == 'D' && b[1] == 'E' && b[2] == 'L' && b[3] == 'E':
		return MethodDELETE, 6
	case b[0] == 'O' && b[1] == 'P' && b[2] == 'T' && b[3] == 'I':
		return MethodOPTIONS, 7
	}
	return MethodUnknown, 0
}
