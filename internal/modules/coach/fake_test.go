package coach

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/yungbote/fitcoach-backend/internal/domain/fitness"
)

type fakeAI struct {
	mu sync.Mutex

	planObj  map[string]any
	planErr  error
	convID   string
	convErr  error
	reply    string
	replyErr error

	// closed channels release blocked calls
	planGate chan struct{}
	chatGate chan struct{}

	jsonCalls int32
	convCalls int32
	chatCalls int32

	lastSchemaName   string
	lastUser         string
	lastInstructions string
	lastConvID       string
}

func newFakeAI() *fakeAI {
	return &fakeAI{planObj: planObject(samplePlan()), convID: "conv_1", reply: "多喝水，睡飽一點。"}
}

func (f *fakeAI) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	atomic.AddInt32(&f.jsonCalls, 1)
	f.mu.Lock()
	gate := f.planGate
	f.lastSchemaName = schemaName
	f.lastUser = user
	obj, err := f.planObj, f.planErr
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return obj, err
}

func (f *fakeAI) CreateConversation(ctx context.Context) (string, error) {
	atomic.AddInt32(&f.convCalls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.convID, f.convErr
}

func (f *fakeAI) GenerateTextInConversation(ctx context.Context, conversationID, instructions, user string) (string, error) {
	atomic.AddInt32(&f.chatCalls, 1)
	f.mu.Lock()
	gate := f.chatGate
	f.lastConvID = conversationID
	f.lastInstructions = instructions
	f.lastUser = user
	reply, err := f.reply, f.replyErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return reply, err
}

func samplePlan() fitness.FitnessPlan {
	days := []string{"週一", "週二", "週三", "週四", "週五", "週六", "週日"}
	focus := []string{"胸推", "背拉", "腿部", "肩臂", "核心", "全身", "休息"}
	plan := fitness.FitnessPlan{
		DailyCalories:     2650,
		WaterIntake:       2100,
		Macros:            fitness.Macros{Protein: 120, Carbs: 340, Fats: 75},
		DietSuggestions:   []string{"燕麥加香蕉", "雞胸便當"},
		FoodSwaps:         []string{"炸雞換成烤雞胸肉"},
		AgeSpecificAdvice: "每晚睡滿 8 小時。",
		StretchingRoutine: fitness.StretchingRoutine{
			Focus:     "下背與髖部",
			Tips:      "每個動作停留 30 秒。",
			Movements: []string{"貓牛式", "鴿式", "嬰兒式"},
		},
	}
	for i := range days {
		plan.WeeklySchedule = append(plan.WeeklySchedule, fitness.WorkoutDay{
			Day:   days[i],
			Focus: focus[i],
			Exercises: []fitness.Exercise{
				{Name: "啞鈴臥推", Sets: "3-4", Reps: "8-12", Notes: "控制離心"},
				{Name: "伏地挺身", Sets: "3", Reps: "力竭"},
			},
		})
	}
	return plan
}

// planObject is what the client hands back after decoding the provider JSON.
func planObject(p fitness.FitnessPlan) map[string]any {
	raw, _ := json.Marshal(p)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return out
}
