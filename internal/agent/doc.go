// Package agent runs one conversational turn: it composes the system
// prompt, lets the model request tools from the catalog, feeds tool output
// back and returns the model's final answer.
//
// Every turn and every tool call first checks the session credential. A
// missing or unrefreshable credential ends the turn with AuthErrorMessage
// before the model or any tool is invoked.
package agent
