package conversation

import "fmt"

const (
	confirmRequestFormat = "Please confirm the call to %s"
	// DeclineText is the synthetic user reply recorded for a rejected tool call.
	DeclineText          = "I changed my mind, please don't do it!"
	cancelledFormat      = "Sure, I cancelled the call to %s. What else can I do for you today?"
)

// ConfirmRequest is the assistant turn asking to confirm a call to toolName.
func ConfirmRequest(toolName string) string {
	return fmt.Sprintf(confirmRequestFormat, toolName)
}

// Cancelled is the assistant turn acknowledging a cancelled call to toolName.
func Cancelled(toolName string) string {
	return fmt.Sprintf(cancelledFormat, toolName)
}

// AppendDenial records the exchange that would have happened had the agent
// asked for confirmation itself: ask, decline, acknowledge.
func AppendDenial(h History, toolName string) History {
	return append(h,
		Assistant(ConfirmRequest(toolName)),
		User(DeclineText),
		Assistant(Cancelled(toolName)),
	)
}
