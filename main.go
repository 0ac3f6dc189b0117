/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/Satish-Das/food-donate-application/cmd"

func main() {
	cmd.Execute()
}
