// chatcli это консольный клиент для отправки и просмотра чата через gRPC.
package main

import "github.com/cwrk-planet/chat-service/cmd/chatcli/cmd"

func main() {
	cmd.Execute()
}
