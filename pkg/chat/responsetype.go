package chat

// jsonButtonTools are rendered client-side as actionable buttons.
var jsonButtonTools = map[string]bool{
	"get_button":                      true,
	"get_activities_by_activity_name": true,
	"get_hotels":                      true,
}

// ToolResponseType maps a tool result to its rendering tag. Tool name wins
// over agent identity; anything produced by the coder agent that has no
// dedicated tag renders as code.
func ToolResponseType(toolName, agentName string) MessageType {
	if toolName == "get_files_with_description" {
		return TypeJSONFiles
	}
	if jsonButtonTools[toolName] {
		return TypeJSONButton
	}
	if toolName == "search_image" {
		return TypeUIReference
	}
	if agentName == CoderAgentName {
		return TypeCode
	}
	return TypeText
}
