package main

// {{ basename }}
func main() {}
