package types

// ResultBundle is the structured output of every tool operation. Success
// carries operation-specific payload keys; failure carries a message and
// optionally an error code. Every handler returns one on every path.
type ResultBundle map[string]any

func Success(payload map[string]any) ResultBundle {
	result := ResultBundle{"success": true}
	for k, v := range payload {
		result[k] = v
	}
	return result
}

func Failure(message string) ResultBundle {
	return ResultBundle{"success": false, "message": message}
}

func FailureCode(code, message string) ResultBundle {
	return ResultBundle{"success": false, "message": message, "error_code": code}
}

// FailureFromError maps operation errors to their code and everything
// else to a plain failure message.
func FailureFromError(err error) ResultBundle {
	if opErr, ok := AsOperationError(err); ok {
		result := FailureCode(opErr.Code, opErr.Message)
		for k, v := range opErr.Data {
			result[k] = v
		}
		return result
	}
	return Failure(err.Error())
}

func (r ResultBundle) OK() bool {
	ok, _ := r["success"].(bool)
	return ok
}

func (r ResultBundle) Message() string {
	msg, _ := r["message"].(string)
	return msg
}

func (r ResultBundle) ErrorCode() string {
	code, _ := r["error_code"].(string)
	return code
}
