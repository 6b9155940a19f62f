package main

import "github.com/Netcracker/qubership-marketplace-cleanup/app"

func main() {
	app.RunJob((*app.Application).ConversationPurgeJob)
}
