package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/toyz/strata/pkg/strata"
)

func main() {
	execs := strata.NewExecutors()
	defer execs.Close()

	scope := NewApplicationScope(&App{}, execs)
	controllers := NewControllers()
	<-controllers.Start(scope)

	screen := NewMainScope(scope, &Main{})
	widget := NewBindWidget(7).Create(screen).Widget()
	fmt.Println("widget-db-shared:", widget.Db == scope.Db())
	fmt.Println("controllers-db-shared:", controllers.Db() == scope.Db())
	fmt.Println("widget-id:", widget.ID)

	traceMu.Lock()
	fmt.Println("trace:", strings.Join(trace, " "))
	traceMu.Unlock()

	outcomes := controllers.Results()
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Name < outcomes[j].Name })
	for _, o := range outcomes {
		if o.Ok() {
			fmt.Printf("outcome %s: ok\n", o.Name)
			continue
		}
		fmt.Printf("outcome %s: %v\n", o.Name, o.Err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	fmt.Println("close:", scope.Close(ctx))
}
