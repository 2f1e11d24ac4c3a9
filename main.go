package main

import "Gin_postgres_redis_tool_lending/cmd"

func main() {
	cmd.Execute()
}
