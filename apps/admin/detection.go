package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) runDelays() error {
	sum, err := cli.stuSvc.RunDelayDetection(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("delay detection done: %s\n", sum)
	return nil
}

func (cli *commandLine) runCQI() error {
	sum, err := cli.assSvc.RunCQIDetection(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("cqi detection done: %s\n", sum)
	return nil
}
