package assistant

import (
	"fmt"
	"strings"

	"taskpilot/internal/task"
)

// Canned assistant texts. These are deterministic so the dialogue is fully
// testable; the markdown inside is rendered by the TUI.

const welcomeText = "👋 Hi! I'm your Task Assistant. I can help you create and manage tasks. Try saying something like:\n\n" +
	"• 'Add a task to finish the report by Friday'\n" +
	"• 'Delete the task about reviewing code'\n" +
	"• 'Set high priority for meeting task'\n" +
	"• 'Show me all my tasks'\n\n" +
	"How can I help you today?"

const helpText = "I can help you with:\n\n" +
	"✅ **Creating Tasks** - 'Add a task to review code'\n" +
	"🗑️ **Deleting Tasks** - 'Delete the task about meeting'\n" +
	"⚡ **Setting Priorities** - 'Set high priority for report task'\n" +
	"📋 **Listing Tasks** - 'Show me all my tasks'\n" +
	"📅 **Scheduling** - Mention dates like 'tomorrow' or 'next week'\n\n" +
	"Try any of these commands!"

const greetingText = "Hello! 👋 Ready to help you manage your tasks. What would you like to do today?"

const fallbackText = "I'm not sure I understood that. Try:\n\n" +
	"• 'Add a task to [action]'\n" +
	"• 'Delete the task about [topic]'\n" +
	"• 'Set [priority] priority for [task]'\n" +
	"• 'Show me all my tasks'\n\n" +
	"Or type 'help' to see all commands!"

const emptyListText = "You don't have any tasks yet. Try creating one by saying:\n\n'Add a task to finish the report'"

const createFailedText = "I understood your request, but there was an issue creating the task. Please try again or create it manually."

const priorityClarifyText = "To change a priority, try:\n\n'Set high priority for [task name]'"

func deletedText(title string) string {
	return fmt.Sprintf("🗑️ Task deleted successfully:\n\n**%s**\n\nThe task has been removed from your list.", title)
}

func deleteNotFoundText(phrase string) string {
	return fmt.Sprintf("I couldn't find a task matching %q. Try:\n\n• 'Show me all my tasks' to see what's available\n• Be more specific with the task name", phrase)
}

func priorityUpdatedText(title string, p task.Priority) string {
	return fmt.Sprintf("⚡ Priority updated successfully:\n\n**%s**\nNew Priority: %s\n\nThe task has been updated in your list.", title, p)
}

func priorityNotFoundText(phrase string) string {
	return fmt.Sprintf("I couldn't find a task matching %q. Try 'Show me all my tasks' to see what's available.", phrase)
}

func listText(cache []task.Task) string {
	lines := make([]string, len(cache))
	for i, t := range cache {
		lines[i] = fmt.Sprintf("%d. **%s** - %s priority, %s", i+1, t.Title, t.Priority, t.Status)
	}
	return fmt.Sprintf("📋 Here are your current tasks:\n\n%s\n\nNeed help with any of these?", strings.Join(lines, "\n"))
}

func createdText(e Entities) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Great! I've created your task:\n\n**%s**\n", e.Title)
	if e.DueDate != nil {
		fmt.Fprintf(&b, "📅 Due: %s\n", e.DueDate.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "⚡ Priority: %s\n", e.Priority)
	fmt.Fprintf(&b, "📁 Category: %s\n", e.Category)
	b.WriteString("\nNeed anything else?")
	return b.String()
}

func storeFailureText(action string) string {
	return fmt.Sprintf("I found the task, but there was an issue %s it. Please try again.", action)
}
