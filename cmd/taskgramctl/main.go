// Command taskgramctl is the operator CLI for the Taskgram API: it applies
// migrations, seeds users and issues bearer tokens.
package main

func main() {
	Execute()
}
